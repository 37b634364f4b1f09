// Package frame reads the accidents CSV as a lazy, re-scannable table.
//
// Scan only records the path. Each Open starts a fresh pass over the file and
// yields projected usaccidents.Record values one at a time, so memory does not
// grow with the number of rows. Columns other than the projected ones are ignored.
package frame
