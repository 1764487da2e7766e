/*
Package mask turns per-position read depth into a low-coverage mask.

Positions whose depth falls below a threshold are collected per contig and
merged into the minimal ordered list of closed, 1-based intervals covering
exactly those positions. The mask is written as headerless tab-separated
lines:

	contig<TAB>start<TAB>end
*/
package mask
