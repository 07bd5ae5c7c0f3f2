package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/extent/stage"
	"github.com/annel0/voxedit/internal/session"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// request - разобранные аргументы команды
type request struct {
	Command string
	Min     vec.Vec3
	Max     vec.Vec3
	Block   block.Block
	From    block.BlockID
}

// parseBlock принимает имя типа (без учета регистра) или числовой id
func parseBlock(s string) (block.BlockID, error) {
	if t, ok := block.ByName(s); ok {
		return t.ID, nil
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil && block.IsValidBlockID(block.BlockID(n)) {
		return block.BlockID(n), nil
	}
	return 0, fmt.Errorf("неизвестный блок %q", s)
}

// fillRegion пишет b во все позиции региона и возвращает число изменений
func fillRegion(e extent.Extent, lo, hi vec.Vec3, b block.Block) (int, error) {
	changed := 0
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				ok, err := e.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, b)
				if err != nil {
					return changed, err
				}
				if ok {
					changed++
				}
			}
		}
	}
	return changed, nil
}

// countRegion считает блоки региона по типам
func countRegion(e extent.Extent, lo, hi vec.Vec3) map[block.BlockID]int {
	counts := make(map[block.BlockID]int)
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				counts[e.LazyBlock(vec.Vec3{X: x, Y: y, Z: z}).ID]++
			}
		}
	}
	return counts
}

// run выполняет команду в сессии и пишет результат в out
func run(ctx context.Context, s *session.EditSession, req request, out io.Writer) error {
	lo, hi := req.Min.Min(req.Max), req.Min.Max(req.Max)

	switch req.Command {
	case "fill", "replace":
		if req.Command == "replace" {
			s.SetMask(stage.NewBlockMask(s.Extent(), req.From))
			defer s.SetMask(nil)
		}
		changed, err := fillRegion(s.Extent(), lo, hi, req.Block)
		if err != nil {
			return err
		}
		if err := s.Flush(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: изменено блоков %d из %d\n", req.Command, changed, vec.Volume(lo, hi))

	case "undo":
		ok, err := s.Undo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "undo: %v\n", ok)

	case "redo":
		ok, err := s.Redo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "redo: %v\n", ok)

	case "inspect":
		fmt.Fprintf(out, "%s: %s\n", lo, s.Extent().Block(lo))
		counts := countRegion(s.Extent(), lo, hi)
		ids := make([]block.BlockID, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(out, "  %-10s %d\n", block.Of(id).Name(), counts[id])
		}

	default:
		return fmt.Errorf("неизвестная команда %q", req.Command)
	}
	return nil
}
