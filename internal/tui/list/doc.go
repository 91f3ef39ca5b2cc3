// Package listview renders long lists in a fixed-height terminal viewport.
//
// A Model either renders only the rows inside the scroll window plus a small
// buffer (virtualized) or renders every row and clips the output to the
// viewport (full render). Both produce the same visible text; they differ in
// how many rows are rendered per frame, which RenderedRows reports. Key
// features:
//   - Window start is floor(offset / itemHeight)
//   - Window length is ceil(viewportHeight / itemHeight) + 2
//   - Keyboard scrolling (up/down, pgup/pgdn, home/end, j/k)
package listview
