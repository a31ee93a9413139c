package catalog

// Asset is one marketplace listing: priced in MIDEN, rewarded in HLT.
type Asset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       uint64 `json:"price"`     // whole MIDEN tokens
	HLTReward   uint64 `json:"hltReward"` // whole HLT tokens
}

var assets = []Asset{
	{
		ID:          "1",
		Name:        "Digital Art Piece #1",
		Description: "A beautiful digital artwork showcasing modern design",
		ImageURL:    "https://images.unsplash.com/photo-1541961017774-22349e4a1262?w=400&h=400&fit=crop",
		Price:       100,
		HLTReward:   50,
	},
	{
		ID:          "2",
		Name:        "Abstract Composition",
		Description: "An abstract composition with vibrant colors",
		ImageURL:    "https://images.unsplash.com/photo-1557672172-298e090bd0f1?w=400&h=400&fit=crop",
		Price:       200,
		HLTReward:   100,
	},
	{
		ID:          "3",
		Name:        "Nature Landscape",
		Description: "A serene landscape capturing nature's beauty",
		ImageURL:    "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=400&h=400&fit=crop",
		Price:       150,
		HLTReward:   75,
	},
	{
		ID:          "4",
		Name:        "Urban Architecture",
		Description: "Modern architecture in an urban setting",
		ImageURL:    "https://images.unsplash.com/photo-1487958449943-2429e8be8625?w=400&h=400&fit=crop",
		Price:       250,
		HLTReward:   125,
	},
	{
		ID:          "5",
		Name:        "Abstract Patterns",
		Description: "Intricate patterns and geometric designs",
		ImageURL:    "https://images.unsplash.com/photo-1557672172-298e090bd0f1?w=400&h=400&fit=crop",
		Price:       180,
		HLTReward:   90,
	},
	{
		ID:          "6",
		Name:        "Colorful Gradient",
		Description: "A vibrant gradient artwork",
		ImageURL:    "https://images.unsplash.com/photo-1541961017774-22349e4a1262?w=400&h=400&fit=crop",
		Price:       120,
		HLTReward:   60,
	},
}

// Assets returns the marketplace listings.
func Assets() []Asset {
	out := make([]Asset, len(assets))
	copy(out, assets)
	return out
}

// AssetByID looks up a listing by its id.
func AssetByID(id string) (Asset, bool) {
	for _, a := range assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}
