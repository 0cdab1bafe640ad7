// Package imageprocessor turns decoded single character bitmaps into the
// canonical 28x28 centroid aligned form used for training, and provides the
// native loaders and resizer the scanner decodes images with.
package imageprocessor
