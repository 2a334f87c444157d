package domain

// Vehicle statuses.
const (
	VehicleActive      = "active"
	VehicleMaintenance = "maintenance"
)

// On-site storage kinds for enterprises.
const (
	StorageRaw      = "raw"
	StorageFinished = "finished"
)

// A catalog product. Other records reference products by Name, not by ID.
type Product struct {
	ID       int    `json:"id"`
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required"`
}

func (p Product) EntityID() int         { return p.ID }
func (p Product) WithID(id int) Product { p.ID = id; return p }
func (p Product) DisplayName() string   { return p.Name }

// A storage site holding per-product monthly stock levels.
type Warehouse struct {
	ID       int             `json:"id"`
	Name     string          `json:"name" validate:"required"`
	Location string          `json:"location" validate:"required"`
	Lat      *float64        `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng      *float64        `json:"lng,omitempty" validate:"omitempty,longitude"`
	Products []ProductSeries `json:"products" validate:"dive"`
}

func (w Warehouse) EntityID() int           { return w.ID }
func (w Warehouse) WithID(id int) Warehouse { w.ID = id; return w }
func (w Warehouse) DisplayName() string     { return w.Name }

// Coordinates returns the stored point, if any.
func (w Warehouse) Coordinates() (Coordinates, bool) { return CoordinatesFrom(w.Lat, w.Lng) }

// TotalVolume is the latest month's stock summed over products.
func (w Warehouse) TotalVolume() float64 { return LatestTotal(w.Products) }

// One on-site storage line of an enterprise, tagged raw or finished.
type StorageEntry struct {
	Product     string          `json:"product" validate:"required"`
	Type        string          `json:"type" validate:"oneof=raw finished"`
	MonthlyData []MonthlyVolume `json:"monthlyData" validate:"dive"`
}

// A consuming/producing site.
type Enterprise struct {
	ID       int             `json:"id"`
	Name     string          `json:"name" validate:"required"`
	Location string          `json:"location" validate:"required"`
	Lat      *float64        `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng      *float64        `json:"lng,omitempty" validate:"omitempty,longitude"`
	Consumed []ProductSeries `json:"consumed" validate:"dive"`
	Produced []ProductSeries `json:"produced" validate:"dive"`
	Storage  []StorageEntry  `json:"storage,omitempty" validate:"dive"`
}

func (e Enterprise) EntityID() int            { return e.ID }
func (e Enterprise) WithID(id int) Enterprise { e.ID = id; return e }
func (e Enterprise) DisplayName() string      { return e.Name }

// Coordinates returns the stored point, if any.
func (e Enterprise) Coordinates() (Coordinates, bool) { return CoordinatesFrom(e.Lat, e.Lng) }

// MonthlyConsumption is the latest month's consumption summed over products.
func (e Enterprise) MonthlyConsumption() float64 { return LatestTotal(e.Consumed) }

// MonthlyProduction is the latest month's production summed over products.
func (e Enterprise) MonthlyProduction() float64 { return LatestTotal(e.Produced) }

// StorageSeries splits storage entries by kind into plain product series.
func (e Enterprise) StorageSeries() (raw, finished []ProductSeries) {
	for _, s := range e.Storage {
		ps := ProductSeries{Product: s.Product, MonthlyData: s.MonthlyData}
		if s.Type == StorageFinished {
			finished = append(finished, ps)
			continue
		}
		raw = append(raw, ps)
	}
	return raw, finished
}

// A fleet vehicle. Enterprise and ProductTypes are names, not ids.
type Vehicle struct {
	ID           int      `json:"id"`
	Brand        string   `json:"brand" validate:"required"`
	LicensePlate string   `json:"licensePlate,omitempty"`
	TrailerType  string   `json:"trailerType" validate:"required"`
	Volume       float64  `json:"volume" validate:"gt=0"`
	ProductTypes []string `json:"productTypes" validate:"dive,required"`
	Enterprise   string   `json:"enterprise"`
	Schedule     string   `json:"schedule"`
	Status       string   `json:"status" validate:"oneof=active maintenance"`
}

func (v Vehicle) EntityID() int         { return v.ID }
func (v Vehicle) WithID(id int) Vehicle { v.ID = id; return v }
func (v Vehicle) DisplayName() string   { return v.Brand }
func (v Vehicle) Active() bool          { return v.Status != VehicleMaintenance }
