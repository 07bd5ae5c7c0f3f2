package eventbus

import (
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// EventBlockChanges - пакет изменений блоков, примененных при выполнении Commit
const EventBlockChanges = "BlockChanges"

// BlockChange - новое значение блока в позиции
type BlockChange struct {
	Pos   vec.Vec3    `json:"pos"`
	Block block.Block `json:"block"`
}

// BlockChanges - полезная нагрузка события EventBlockChanges
type BlockChanges struct {
	Changes []BlockChange `json:"changes"`
}
