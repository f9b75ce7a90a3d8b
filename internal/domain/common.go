package domain

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Pad расширяет bounding box на заданное количество градусов по обеим осям
func (b BoundingBox) Pad(deg float64) BoundingBox {
	return BoundingBox{
		MinLat: b.MinLat - deg,
		MinLon: b.MinLon - deg,
		MaxLat: b.MaxLat + deg,
		MaxLon: b.MaxLon + deg,
	}
}

// BoxAround возвращает вырожденный bounding box вокруг точки
func BoxAround(lat, lon float64) BoundingBox {
	return BoundingBox{MinLat: lat, MinLon: lon, MaxLat: lat, MaxLon: lon}
}

// BoxSpanning возвращает bounding box, охватывающий обе точки
func BoxSpanning(a, b Point) BoundingBox {
	box := BoundingBox{MinLat: a.Lat, MinLon: a.Lon, MaxLat: a.Lat, MaxLon: a.Lon}
	if b.Lat < box.MinLat {
		box.MinLat = b.Lat
	}
	if b.Lat > box.MaxLat {
		box.MaxLat = b.Lat
	}
	if b.Lon < box.MinLon {
		box.MinLon = b.Lon
	}
	if b.Lon > box.MaxLon {
		box.MaxLon = b.Lon
	}
	return box
}
