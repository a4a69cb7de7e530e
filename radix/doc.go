// Package radix partitions integer columns on a bit field of their values.
//
// The digit of a value is (value >> offset) & (1<<bits - 1) taken over the
// value's unsigned bit pattern. Run counts digits into a histogram, turns
// it into exclusive prefix sums and scatters row ids into a stable
// partition map: Map[i] is the destination row of source row i.
//
// Balanced splits an already sorted column into 1<<bits partitions of
// roughly equal size without ever splitting a run of equal values.
package radix
