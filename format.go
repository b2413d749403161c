package main

import "fmt"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// formatBytes scales v to the largest unit that keeps every significant
// byte. Below 1 MiB a value is only promoted when it divides evenly by
// 1024; above that threshold precision loss is accepted.
func formatBytes(v uint64) string {
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		if v < 1<<20 && v%1024 != 0 {
			break
		}
		v >>= 10
		unit++
	}
	return fmt.Sprintf("%d %s", v, byteUnits[unit])
}
