package vec

import "fmt"

// Vec2 представляет координаты колонки чанков (X, Z мира)
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String возвращает "(x, y)"
func (v Vec2) String() string {
	return fmt.Sprintf("(%d, %d)", v.X, v.Y)
}

// Origin возвращает мировые координаты угла колонки на высоте y
func (v Vec2) Origin(y int) Vec3 {
	return Vec3{X: v.X << 4, Y: y, Z: v.Y << 4}
}
