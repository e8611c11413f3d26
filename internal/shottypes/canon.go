package shottypes

import "strconv"

func itoa(v int) string { return strconv.Itoa(v) }

func btoa(v bool) string { return strconv.FormatBool(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
