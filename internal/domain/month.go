package domain

// Months lists the planning month labels in calendar order.
// Labels are stored verbatim in monthly series, so they must never be renamed.
var Months = []string{
	"Январь 2025", "Февраль 2025", "Март 2025", "Апрель 2025",
	"Май 2025", "Июнь 2025", "Июль 2025", "Август 2025",
	"Сентябрь 2025", "Октябрь 2025", "Ноябрь 2025", "Декабрь 2025",
}

// MonthIndex returns the calendar position of a label, or -1 when unknown.
func MonthIndex(label string) int {
	for i, m := range Months {
		if m == label {
			return i
		}
	}
	return -1
}

func IsMonth(label string) bool { return MonthIndex(label) >= 0 }
