package block

import (
	"strings"
	"sync"
)

// BlockID представляет идентификатор типа блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID     BlockID = iota // 0
	StoneBlockID                  // 1
	GrassBlockID                  // 2
	WaterBlockID                  // 3
	SandBlockID                   // 4
	DirtBlockID                   // 5
	BedrockBlockID                // 6

	// Декоративные блоки (начиная с 100)
	FlowerBlockID BlockID = 100 // Цветок, крепится к опоре
	TreeBlockID   BlockID = 101 // Дерево
	CactusBlockID BlockID = 102 // Кактус
	TorchBlockID  BlockID = 103 // Факел, крепится к опоре

	// Интерактивные блоки (начиная с 200)
	ChestBlockID BlockID = 200 // Сундук
	DoorBlockID  BlockID = 201 // Дверь

	// Специальные блоки (начиная с 1000)
	PortalBlockID  BlockID = 1000 // Портал
	SpawnerBlockID BlockID = 1001 // Спаунер
)

// Placement определяет очередность установки блока при массовом редактировании.
// Блоки, которым нужна опора, ставятся после твердых.
type Placement uint8

const (
	PlaceNormal   Placement = iota // твердые блоки, ставятся сразу
	PlaceAttached                  // требуют опору: факелы, цветы, двери
	PlaceFinal                     // жидкости и порталы, ставятся последними
)

// String возвращает имя этапа установки
func (p Placement) String() string {
	switch p {
	case PlaceNormal:
		return "normal"
	case PlaceAttached:
		return "attached"
	case PlaceFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Type описывает зарегистрированный тип блока
type Type struct {
	ID        BlockID
	Name      string
	Placement Placement
	// DefaultState создает начальное состояние блока; nil для блоков без состояния
	DefaultState func() Metadata
}

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]Type)
	byName     = make(map[string]BlockID)
)

// Register добавляет тип блока в регистр
func Register(t Type) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[t.ID] = t
	byName[strings.ToLower(t.Name)] = t.ID
}

// Get возвращает тип для указанного ID
func Get(id BlockID) (Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	t, exists := registry[id]
	return t, exists
}

// ByName ищет тип блока по имени без учета регистра
func ByName(name string) (Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	id, exists := byName[strings.ToLower(name)]
	if !exists {
		return Type{}, false
	}
	return registry[id], true
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// PlacementOf возвращает этап установки блока; неизвестные блоки ставятся сразу
func PlacementOf(id BlockID) Placement {
	t, exists := Get(id)
	if !exists {
		return PlaceNormal
	}
	return t.Placement
}
