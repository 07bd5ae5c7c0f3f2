// Package session собирает цепочку ступеней для одной правки и ведет ее историю.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/extent/stage"
	"github.com/annel0/voxedit/internal/history"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/google/uuid"
)

// ErrNoWorld - сессии не передан конечный экстент
var ErrNoWorld = errors.New("session: мир не задан")

// Options настраивает EditSession
type Options struct {
	ID         string            // Пусто - новый UUID
	World      extent.Extent     // Конечный экстент, обязателен
	MaxChanges int               // <=0 - без ограничения
	Disallowed []block.BlockID   // Запрещенные к записи типы
	Mask       stage.Mask        // nil - писать везде
	Reorder    bool              // Откладывать Attached/Final блоки до Commit
	Bus        eventbus.EventBus // nil - без уведомлений
	History    history.Store     // nil - история в памяти
	Metrics    *stage.MetricSet  // nil - без учета обращений
	Executor   *operation.Executor
	Logger     *logging.Logger
}

// EditSession - цепочка ступеней над миром плюс история правок.
//
// Порядок ступеней от внешней к внутренней:
// Metrics, Masking, ChangeLimiter, Tracking, BlockFilter, Reorder, Notify, мир.
// Отмена и повтор пишут ниже BlockFilter: прежние значения могут быть
// запрещенными блоками.
type EditSession struct {
	id       string
	outer    extent.Extent
	masking  *stage.Masking
	limiter  *stage.ChangeLimiter
	tracking *stage.Tracking
	replay   extent.Extent

	store    history.Store
	executor *operation.Executor
	logger   *logging.Logger

	mu sync.Mutex
}

// New собирает сессию. Курсор истории восстанавливается из History,
// поэтому сессию с тем же ID можно продолжить в другом процессе.
func New(ctx context.Context, opts Options) (*EditSession, error) {
	if opts.World == nil {
		return nil, ErrNoWorld
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.History == nil {
		opts.History = history.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Executor == nil {
		opts.Executor = operation.NewExecutor(operation.WithLogger(opts.Logger))
	}
	limit := opts.MaxChanges
	if limit <= 0 {
		limit = -1
	}

	s := &EditSession{
		id:       opts.ID,
		store:    opts.History,
		executor: opts.Executor,
		logger:   opts.Logger,
	}

	var chain extent.Extent = opts.World
	if opts.Bus != nil {
		chain = stage.NewNotify(chain, opts.Bus, opts.ID)
	}
	var reorder *stage.Reorder
	if opts.Reorder {
		reorder = stage.NewReorder(chain)
		chain = reorder
	}
	s.replay = chain

	chain = stage.NewBlockFilter(chain, opts.Disallowed...)
	s.tracking = stage.NewTracking(chain, nil)
	if reorder != nil {
		reorder.SetRejectHandler(func(pos vec.Vec3, b block.Block, err error) {
			s.tracking.Forget(pos, b)
			s.logger.Warn("сессия %s: блок %s в %s не поставлен: %v", s.id, b, pos, err)
		})
	}
	s.limiter = stage.NewChangeLimiter(s.tracking, limit)
	s.masking = stage.NewMasking(s.limiter, opts.Mask)
	chain = s.masking
	if opts.Metrics != nil {
		chain = stage.NewMetrics(chain, opts.Metrics)
	}
	s.outer = chain

	if _, err := s.store.Cursor(ctx, s.id); err != nil {
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}
	s.logger.Debug("сессия %s создана (лимит=%d, reorder=%v)", s.id, limit, opts.Reorder)
	return s, nil
}

// ID возвращает идентификатор сессии
func (s *EditSession) ID() string {
	return s.id
}

// Extent возвращает внешнюю ступень цепочки: через нее идут правки
func (s *EditSession) Extent() extent.Extent {
	return s.outer
}

// SetMask заменяет маску записи
func (s *EditSession) SetMask(mask stage.Mask) {
	s.masking.SetMask(mask)
}

// ChangeCount возвращает число учтенных попыток записи
func (s *EditSession) ChangeCount() int {
	return s.limiter.Count()
}

// Flush выполняет Commit цепочки и сохраняет накопленные изменения
// как очередной шаг истории. Шаги после курсора отбрасываются.
func (s *EditSession) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx)
}

func (s *EditSession) flush(ctx context.Context) error {
	if err := s.executor.Complete(ctx, s.outer.Commit()); err != nil {
		return fmt.Errorf("session %s: commit: %w", s.id, err)
	}

	changes := s.tracking.ChangeSet().Take()
	if changes.Len() == 0 {
		return nil
	}

	cursor, err := s.store.Cursor(ctx, s.id)
	if err != nil {
		return err
	}
	if err := s.store.Truncate(ctx, s.id, cursor); err != nil {
		return err
	}
	n, err := s.store.Append(ctx, s.id, changes)
	if err != nil {
		return fmt.Errorf("session %s: history: %w", s.id, err)
	}
	if err := s.store.SetCursor(ctx, s.id, n); err != nil {
		return err
	}
	s.logger.Info("сессия %s: сохранено изменений %d, шаг истории %d", s.id, changes.Len(), n)
	return nil
}

// Undo отменяет последний примененный шаг истории.
// Возвращает false, если отменять нечего.
func (s *EditSession) Undo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(ctx); err != nil {
		return false, err
	}
	cursor, err := s.store.Cursor(ctx, s.id)
	if err != nil || cursor == 0 {
		return false, err
	}

	changes, err := s.store.Get(ctx, s.id, cursor-1)
	if err != nil {
		return false, err
	}
	if err := s.replayOperation(ctx, changes.Undo(s.replay)); err != nil {
		return false, fmt.Errorf("session %s: undo: %w", s.id, err)
	}
	return true, s.store.SetCursor(ctx, s.id, cursor-1)
}

// Redo повторяет отмененный шаг. Возвращает false, если повторять нечего.
func (s *EditSession) Redo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Несохраненная правка отбрасывает хвост повторов
	if err := s.flush(ctx); err != nil {
		return false, err
	}
	cursor, err := s.store.Cursor(ctx, s.id)
	if err != nil {
		return false, err
	}
	length, err := s.store.Len(ctx, s.id)
	if err != nil || cursor >= length {
		return false, err
	}

	changes, err := s.store.Get(ctx, s.id, cursor)
	if err != nil {
		return false, err
	}
	if err := s.replayOperation(ctx, changes.Redo(s.replay)); err != nil {
		return false, fmt.Errorf("session %s: redo: %w", s.id, err)
	}
	return true, s.store.SetCursor(ctx, s.id, cursor+1)
}

// replayOperation применяет op ниже фильтра и затем выполняет Commit этой
// части цепочки: отложенные ступени видят записи только после op.
func (s *EditSession) replayOperation(ctx context.Context, op operation.Operation) error {
	if err := s.executor.Complete(ctx, op); err != nil {
		return err
	}
	return s.executor.Complete(ctx, s.replay.Commit())
}
