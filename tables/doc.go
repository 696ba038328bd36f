// Package tables reconstructs the cell grid of a ruled schedule from its
// canonical raster image.
//
// # Detection
//
// [Detector.Detect] runs a fixed multi-step algorithm:
//
//  1. Binarize the image so ink is foreground
//  2. Extract long vertical and long horizontal strokes independently with
//     one-dimensional openings sized relative to the image width
//  3. Union the two stroke masks and thicken them into a closed "cell wall"
//  4. Label every region of the wall mask (both polarities) with its nesting
//     depth, and take the bounding rectangle of each region that does not
//     reach the image edge
//  5. Filter rectangles by size, area window and aspect window
//  6. Collapse overlapping rectangles with [Dedupe]
//  7. Sort the survivors top-to-bottom, then left-to-right
//
// # Configuration
//
// Thresholds come from [config.BoxConfig]. Area floors differ by source
// kind because rendered PDF pages and photographs have different noise
// profiles:
//
//	d := tables.New(config.Default().Box)
//	boxes, err := d.Detect(img, format.KindPDF)
package tables
