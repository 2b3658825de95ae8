// Package trace is the CPU ray marcher. It renders the same scene as the
// GPU main shader by splitting the frame into 64x64 tiles and running one
// pool job per tile, so a headless run exercises the worker pool twice per
// frame: once for script updates and once for pixels.
package trace
