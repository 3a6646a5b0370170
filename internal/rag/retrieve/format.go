package retrieve

import "strconv"

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }
func formatInt(i int) string       { return strconv.Itoa(i) }
