package block

import (
	"fmt"
	"reflect"
)

// Metadata хранит состояние блока (уровень воды, содержимое сундука и т.п.)
type Metadata map[string]interface{}

// Clone создает поверхностную копию метаданных
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Block представляет содержимое одного вокселя: тип и состояние.
// Нулевое значение - воздух без состояния.
type Block struct {
	ID    BlockID  `json:"id"`
	State Metadata `json:"state,omitempty"`
}

// Air - пустой блок
var Air = Block{ID: AirBlockID}

// New создает блок с состоянием по умолчанию для его типа
func New(id BlockID) Block {
	t, exists := Get(id)
	if !exists || t.DefaultState == nil {
		return Block{ID: id}
	}
	return Block{ID: id, State: t.DefaultState()}
}

// Of создает блок без состояния
func Of(id BlockID) Block {
	return Block{ID: id}
}

// WithState возвращает копию блока с заданным значением состояния
func (b Block) WithState(key string, value interface{}) Block {
	state := b.State.Clone()
	if state == nil {
		state = make(Metadata, 1)
	}
	state[key] = value
	return Block{ID: b.ID, State: state}
}

// Clone создаёт копию блока
func (b Block) Clone() Block {
	return Block{ID: b.ID, State: b.State.Clone()}
}

// Lazy возвращает блок без состояния
func (b Block) Lazy() Block {
	return Block{ID: b.ID}
}

// Equal сравнивает тип и состояние. Пустое и nil состояния равны.
func (b Block) Equal(other Block) bool {
	if b.ID != other.ID {
		return false
	}
	if len(b.State) == 0 && len(other.State) == 0 {
		return true
	}
	return reflect.DeepEqual(b.State, other.State)
}

// Name возвращает имя типа блока или его числовой ID
func (b Block) Name() string {
	if t, exists := Get(b.ID); exists {
		return t.Name
	}
	return fmt.Sprintf("#%d", b.ID)
}

// String возвращает имя блока и количество ключей состояния
func (b Block) String() string {
	if len(b.State) == 0 {
		return b.Name()
	}
	return fmt.Sprintf("%s%v", b.Name(), map[string]interface{}(b.State))
}
