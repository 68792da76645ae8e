package models

// ScreenPoint is a position in screen space, in pixels from the top-left corner of the map view.
type ScreenPoint struct {
	X float64
	Y float64
}

// CameraSnapshot is the read-only camera state delivered with every camera-change notification.
type CameraSnapshot struct {
	Zoom    float64  // Zoom level of the camera.
	Target  GeoPoint // Target is the geographical point at the center of the view.
	Bearing float64  // Bearing in degrees, clockwise from north.
	Tilt    float64  // Tilt in degrees from nadir.
}
