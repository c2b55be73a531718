package models

// MODIS LC_Type1 land cover classes.
const (
	CategoryWater                     = 0
	CategoryEvergreenNeedleleafForest = 1
	CategoryEvergreenBroadleafForest  = 2
	CategoryDeciduousNeedleleafForest = 3
	CategoryDeciduousBroadleafForest  = 4
	CategoryMixedForest               = 5
	CategoryClosedShrublands          = 6
	CategoryOpenShrublands            = 7
	CategoryWoodySavannas             = 8
	CategorySavannas                  = 9
	CategoryGrasslands                = 10
	CategoryPermanentWetlands         = 11
	CategoryCroplands                 = 12
	CategoryUrban                     = 13
	CategoryCroplandMosaic            = 14
	CategorySnowAndIce                = 15
	CategoryBarren                    = 16
	CategoryUnclassified              = 254
)

// ForestCategories are the classes counted as forest cover.
var ForestCategories = []int{
	CategoryEvergreenNeedleleafForest,
	CategoryEvergreenBroadleafForest,
	CategoryDeciduousBroadleafForest,
	CategoryMixedForest,
}

type LandCoverRecord struct {
	CategoryCode           int
	Name                   string
	TotalLandCoverHectares float64
	BurnedHectares         float64
}

type Category struct {
	Code  int
	Name  string
	Color string // legend colour, hex
}

var categories = []Category{
	{CategoryWater, "Water", "#1c0dff"},
	{CategoryEvergreenNeedleleafForest, "Evergreen Needleleaf Forest", "#05450a"},
	{CategoryEvergreenBroadleafForest, "Evergreen Broadleaf Forest", "#086a10"},
	{CategoryDeciduousNeedleleafForest, "Deciduous Needleleaf Forest", "#54a708"},
	{CategoryDeciduousBroadleafForest, "Deciduous Broadleaf Forest", "#78d203"},
	{CategoryMixedForest, "Mixed Forest", "#009900"},
	{CategoryClosedShrublands, "Closed Shrublands", "#c6b044"},
	{CategoryOpenShrublands, "Open Shrublands", "#dcd159"},
	{CategoryWoodySavannas, "Woody Savannas", "#dade48"},
	{CategorySavannas, "Savannas", "#fbff13"},
	{CategoryGrasslands, "Grasslands", "#b6ff05"},
	{CategoryPermanentWetlands, "Permanent Wetlands", "#27ff87"},
	{CategoryCroplands, "Croplands", "#c24f44"},
	{CategoryUrban, "Urban and Built-up", "#a5a5a5"},
	{CategoryCroplandMosaic, "Cropland/Natural Vegetation Mosaic", "#ff6d4c"},
	{CategorySnowAndIce, "Snow and Ice", "#69fff8"},
	{CategoryBarren, "Barren or Sparsely Vegetated", "#f9ffa4"},
	{CategoryUnclassified, "Unclassified", "#1c0dff"},
}

// Categories returns the known land cover classes in code order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func LookupCategory(code int) (Category, bool) {
	for _, c := range categories {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

func CategoryByName(name string) (Category, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
