// Package layout classifies detected table cells into day headers, the time
// axis and data cells, and assigns data cells to day columns.
//
// # Classification
//
// The [Classifier] reads every box in reading order:
//
//	c := layout.NewClassifier(cfg.Layout, factory, logger)
//	result, err := c.Classify(ctx, img, boxes)
//
// A box whose text is a day name in any configured locale becomes a day
// header. The first box whose text starts with an HH:MM token becomes the
// [model.TimeAxis]. Scanning stops once enough day headers and the time
// axis have been found; every box that is not a day header is a data cell.
//
// # Day Matching
//
// OCR output is folded before comparison: diacritics are removed, letters
// are upper-cased and everything that is not a letter is dropped. Words
// within a small edit distance of a day name still match, so "M0NDAY"
// resolves to MONDAY.
//
// # Columns
//
// [Columns] derives half-open x-ranges from the day headers: neighbouring
// columns meet halfway between their header centers, the first column opens
// a tolerance to the left of its header and the last closes an extension to
// the right. [Assign] tests a cell's horizontal center against those
// ranges. A cell outside every range keeps an empty day.
package layout
