package block

func init() {
	Register(Type{ID: AirBlockID, Name: "Air"})
	Register(Type{ID: StoneBlockID, Name: "Stone"})
	Register(Type{ID: GrassBlockID, Name: "Grass", DefaultState: func() Metadata {
		return Metadata{"growth": 0}
	}})
	Register(Type{ID: WaterBlockID, Name: "Water", Placement: PlaceFinal, DefaultState: func() Metadata {
		return Metadata{"level": 7}
	}})
	Register(Type{ID: SandBlockID, Name: "Sand"})
	Register(Type{ID: DirtBlockID, Name: "Dirt"})
	Register(Type{ID: BedrockBlockID, Name: "Bedrock"})

	Register(Type{ID: FlowerBlockID, Name: "Flower", Placement: PlaceAttached})
	Register(Type{ID: TreeBlockID, Name: "Tree"})
	Register(Type{ID: CactusBlockID, Name: "Cactus", DefaultState: func() Metadata {
		return Metadata{"height": 1}
	}})
	Register(Type{ID: TorchBlockID, Name: "Torch", Placement: PlaceAttached, DefaultState: func() Metadata {
		return Metadata{"facing": "up"}
	}})

	Register(Type{ID: ChestBlockID, Name: "Chest", DefaultState: func() Metadata {
		return Metadata{"items": []interface{}{}}
	}})
	Register(Type{ID: DoorBlockID, Name: "Door", Placement: PlaceAttached, DefaultState: func() Metadata {
		return Metadata{"open": false}
	}})

	Register(Type{ID: PortalBlockID, Name: "Portal", Placement: PlaceFinal})
	Register(Type{ID: SpawnerBlockID, Name: "Spawner", DefaultState: func() Metadata {
		return Metadata{"entity": "", "delay": 200}
	}})
}
