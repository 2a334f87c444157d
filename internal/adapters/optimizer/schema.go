package optimizer

import (
	"logistics-dashboard-service/internal/ports"

	"github.com/invopop/jsonschema"
)

// Schemas describes the optimizer wire contract as JSON Schema documents.
type Schemas struct {
	Request  *jsonschema.Schema `json:"request"`
	Response *jsonschema.Schema `json:"response"`
}

func ContractSchemas() Schemas {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	return Schemas{
		Request:  reflector.Reflect(ports.OptimizationRequest{}),
		Response: reflector.Reflect(ports.OptimizationResponse{}),
	}
}
