// Package render draws a sensor point cloud with its principal axes.
//
// Drawing goes through an explicit Canvas opened from a Target. A Canvas is
// either flushed (written to its file, or shown) or discarded; Emit makes
// sure one of the two happens on every exit path. There is no global figure
// state.
//
// Two targets exist:
//   - FileTarget writes a raster image with gonum/plot, projecting the 3D
//     scene onto the page with a fixed camera.
//   - DisplayTarget writes an interactive go-echarts 3D page and hands it to
//     a viewer (the system browser by default) without waiting for it.
//
// Both share one Layout, so arrow lengths and the cube-shaped view are the
// same regardless of output.
package render
