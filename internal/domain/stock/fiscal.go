package stock

import "time"

// FiscalWindow ventana del año fiscal: desde el día 1 del mes de inicio más reciente (<= hoy) hasta hoy.
// Ambos extremos a medianoche en la zona de now.
func FiscalWindow(now time.Time, startMonth int) (start, end time.Time) {
	loc := now.Location()
	y, m, d := now.Date()
	year := y
	if int(m) < startMonth {
		year--
	}
	start = time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, loc)
	end = time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, end
}
