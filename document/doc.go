// Package document turns an uploaded schedule into one canonical raster
// image.
//
// # Inputs
//
// PDF exports of one or more pages and raster images (PNG, JPEG, GIF, BMP,
// TIFF, WEBP) are accepted. The declared MIME type and the magic bytes must
// agree. PDF structure and page count are checked with rsc.io/pdf before
// any page is rendered, so oversized or corrupt documents are rejected
// without paying for rasterization.
//
// # Page Merging
//
// Browsers split a wide schedule across pages. Each page after the first
// is joined to the image so far: the table bottom of the upper image and
// the table top of the next page are located by ordered lists of
// [BoundaryStrategy] values, the first strategy that reports a result
// wins, and the two crops are stacked vertically.
//
// # Separator
//
// Every canonical image gets one injected vertical line to the right of an
// anchor weekday header. Grid reconstruction needs a closed right edge and
// exports often leave it faint or missing.
package document
