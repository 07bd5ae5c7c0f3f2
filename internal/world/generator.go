package world

import (
	"math/rand"

	"github.com/annel0/voxedit/internal/util"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Generator заполняет колонку, которой еще нет в хранилище.
// minY - мировая высота нижнего слоя колонки.
type Generator interface {
	GenerateChunk(coords vec.Vec2, minY, height int) *Chunk
}

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

// Константы высот для генерации (доли высоты колонки)
const (
	ShallowWaterMax = 0.30 // Ниже - дно водоема
	MountainStart   = 0.80 // Выше - горы
	SeaLevel        = 0.35 // Уровень воды
)

// TerrainGenerator генерирует ландшафт по карте высот из шума Перлина
type TerrainGenerator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	ForestDensity float64 // Плотность лесов (от 0 до 1)

	height *util.Noise
	biome  *util.Noise
}

// NewTerrainGenerator создаёт новый генератор мира
func NewTerrainGenerator(seed int64) *TerrainGenerator {
	return &TerrainGenerator{
		Seed:          seed,
		NoiseScale:    0.05, // Настройка сглаженности ландшафта
		BiomeScale:    0.02, // Настройка размера биомов
		ForestDensity: 0.05, // 5% шанс появления деревьев на равнинах
		height:        util.NewNoise(seed),
		biome:         util.NewNoise(seed + 42),
	}
}

// GenerateChunk генерирует колонку по ее координатам
func (g *TerrainGenerator) GenerateChunk(coords vec.Vec2, minY, height int) *Chunk {
	chunk := NewChunk(coords, height)

	// Для каждого чанка свой сид, чтобы генерация была детерминированной
	chunkSeed := g.Seed + int64(coords.X*31) + int64(coords.Y*17)
	rng := rand.New(rand.NewSource(chunkSeed))

	origin := coords.Origin(minY)
	seaLevel := int(SeaLevel * float64(height))

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			gx := float64(origin.X + x)
			gz := float64(origin.Z + z)

			h := g.height.Noise2D(gx*g.NoiseScale, gz*g.NoiseScale)
			biome := g.biomeFor(h, g.biome.Noise2D(gx*g.BiomeScale, gz*g.BiomeScale))
			surface := int(h * float64(height-1))

			for y := 0; y < height; y++ {
				local := vec.Vec3{X: x, Y: y, Z: z}
				switch {
				case y == 0:
					chunk.SetBlock(local, block.Of(block.BedrockBlockID))
				case y < surface-3:
					chunk.SetBlock(local, block.Of(block.StoneBlockID))
				case y < surface:
					chunk.SetBlock(local, block.Of(g.subsurfaceFor(biome)))
				case y == surface:
					chunk.SetBlock(local, block.New(g.surfaceFor(biome)))
				case y <= seaLevel:
					chunk.SetBlock(local, block.New(block.WaterBlockID))
				}
			}

			if surface+1 < height && surface >= seaLevel {
				g.decorate(chunk, vec.Vec3{X: x, Y: surface + 1, Z: z}, biome, rng)
			}
		}
	}

	chunk.ClearChanges()
	return chunk
}

// decorate ставит деревья и кактусы над поверхностью
func (g *TerrainGenerator) decorate(chunk *Chunk, local vec.Vec3, biome BiomeType, rng *rand.Rand) {
	switch {
	case biome == BiomeForest && rng.Float64() < 0.15: // 15% шанс дерева в лесу
		chunk.SetBlock(local, block.Of(block.TreeBlockID))
	case biome == BiomePlains && rng.Float64() < g.ForestDensity:
		chunk.SetBlock(local, block.Of(block.TreeBlockID))
	case biome == BiomePlains && rng.Float64() < 0.05:
		chunk.SetBlock(local, block.Of(block.FlowerBlockID))
	case biome == BiomeDesert && rng.Float64() < 0.02: // 2% шанс кактуса в пустыне
		chunk.SetBlock(local, block.New(block.CactusBlockID))
	}
}

// surfaceFor возвращает верхний блок для биома
func (g *TerrainGenerator) surfaceFor(biome BiomeType) block.BlockID {
	switch biome {
	case BiomeDesert, BiomeWater:
		return block.SandBlockID
	case BiomeMountains:
		return block.StoneBlockID
	default:
		return block.GrassBlockID
	}
}

// subsurfaceFor возвращает блок под поверхностью
func (g *TerrainGenerator) subsurfaceFor(biome BiomeType) block.BlockID {
	switch biome {
	case BiomeDesert, BiomeWater:
		return block.SandBlockID
	case BiomeMountains:
		return block.StoneBlockID
	default:
		return block.DirtBlockID
	}
}

// biomeFor определяет тип биома на основе значений шума
func (g *TerrainGenerator) biomeFor(height, biomeValue float64) BiomeType {
	if height < ShallowWaterMax {
		return BiomeWater
	}
	if height > MountainStart {
		return BiomeMountains
	}

	// Шум биомов в диапазоне 0..1
	if biomeValue < 0.35 {
		return BiomeDesert
	} else if biomeValue > 0.65 {
		return BiomeForest
	}
	return BiomePlains
}

// FlatGenerator заполняет нижние слои колонки заданными блоками
type FlatGenerator struct {
	Layers []block.BlockID // снизу вверх
}

// GenerateChunk генерирует плоскую колонку
func (g FlatGenerator) GenerateChunk(coords vec.Vec2, minY, height int) *Chunk {
	chunk := NewChunk(coords, height)
	for y, id := range g.Layers {
		if y >= height {
			break
		}
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				chunk.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, block.New(id))
			}
		}
	}
	chunk.ClearChanges()
	return chunk
}
