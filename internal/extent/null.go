package extent

import (
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Null - экстент без адресуемой области: читает воздух и игнорирует записи
type Null struct{}

func (Null) Block(vec.Vec3) block.Block { return block.Air }
func (Null) LazyBlock(vec.Vec3) block.Block { return block.Air }
func (Null) SetBlock(vec.Vec3, block.Block) (bool, error) { return false, nil }
func (Null) MinimumPoint() vec.Vec3 { return vec.Vec3{} }
func (Null) MaximumPoint() vec.Vec3 { return vec.Vec3{} }
func (Null) Commit() operation.Operation { return nil }
