// Command cachesim runs cache simulations over memory traces.
//
// Usage:
//
//	cachesim run [flags] <trace>...
//	cachesim sweep [flags]
//	cachesim config init <path>
//
// Example:
//
//	# Hit and miss rates of a 1MB, 4B block, 4-way cache
//	cachesim run TraceFiles/gcc.trace
//
//	# Sweep associativity and write CSV for spreadsheet comparison
//	cachesim sweep --plan associativity --format csv > assoc.csv
package main

func main() {
	Execute()
}
