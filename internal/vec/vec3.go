package vec

import "fmt"

// Vec3 представляет позицию блока в трехмерном мире.
// Y - высота, X и Z - горизонтальная плоскость.
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// String возвращает "(x, y, z)"
func (v Vec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Min возвращает покомпонентный минимум
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{X: min(v.X, other.X), Y: min(v.Y, other.Y), Z: min(v.Z, other.Z)}
}

// Max возвращает покомпонентный максимум
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{X: max(v.X, other.X), Y: max(v.Y, other.Y), Z: max(v.Z, other.Z)}
}

// In проверяет, лежит ли точка внутри куба [lo, hi] (границы включены)
func (v Vec3) In(lo, hi Vec3) bool {
	return v.X >= lo.X && v.X <= hi.X &&
		v.Y >= lo.Y && v.Y <= hi.Y &&
		v.Z >= lo.Z && v.Z <= hi.Z
}

// ChunkCoords возвращает координаты колонки чанков (16x16), содержащей точку
func (v Vec3) ChunkCoords() Vec2 {
	return Vec2{X: v.X >> 4, Y: v.Z >> 4}
}

// LocalInChunk возвращает координаты внутри колонки (X и Z по модулю 16, Y без изменений)
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y, Z: v.Z & 0xF}
}

// Volume возвращает число блоков в кубе [lo, hi]
func Volume(lo, hi Vec3) int {
	d := hi.Sub(lo)
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return (d.X + 1) * (d.Y + 1) * (d.Z + 1)
}

// ParseVec3 разбирает строку вида "x,y,z"
func ParseVec3(s string) (Vec3, error) {
	var v Vec3
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &v.X, &v.Y, &v.Z); err != nil {
		return Vec3{}, fmt.Errorf("некорректная позиция %q: %w", s, err)
	}
	return v, nil
}
