package geom

import (
	"math"
	"sort"

	"github.com/tidwall/geoindex"
	"github.com/tidwall/rtree"
)

// RTree indexes item bounding boxes for intersection and nearest-neighbour queries.
type RTree struct {
	index *geoindex.Index
}

// NewRTree creates a new RTree
func NewRTree() *RTree {
	return &RTree{
		index: geoindex.Wrap(&rtree.RTree{}),
	}
}

// Insert adds an item to the RTree with the given bounding box
func (r *RTree) Insert(id int64, box BBox) {
	b := box.Bound()
	r.index.Insert(b.Min, b.Max, id)
}

// Search returns all item IDs whose bounding boxes intersect the query box, in ascending order.
func (r *RTree) Search(box BBox) []int64 {
	result := make([]int64, 0)
	if box.IsEmpty() {
		return result
	}
	b := box.Bound()
	r.index.Search(b.Min, b.Max, func(min, max [2]float64, data interface{}) bool {
		result = append(result, data.(int64))
		return true // continue searching
	})
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// SearchNearPoint returns all item IDs within a distance (in meters) of a point
func (r *RTree) SearchNearPoint(p GeoPoint, distanceMeters float64) []int64 {
	dLat, dLon := MetersToDegrees(p.Lat, distanceMeters)
	return r.Search(NewBBox(p).Inflated(dLat, dLon))
}

// Nearest returns up to n item IDs ordered by increasing distance from p.
// itemDist must return the distance in meters from p to the item itself and
// must never be smaller than the distance to the item's bounding box.
func (r *RTree) Nearest(p GeoPoint, n int, itemDist func(id int64) float64) []int64 {
	result := make([]int64, 0, n)
	if n <= 0 {
		return result
	}
	algo := func(min, max [2]float64, data interface{}, item bool) float64 {
		if item {
			return itemDist(data.(int64))
		}
		return boxDistance(p, min, max)
	}
	r.index.Nearby(algo, func(min, max [2]float64, data interface{}, dist float64) bool {
		result = append(result, data.(int64))
		return len(result) < n
	})
	return result
}

// Size returns the number of items in the RTree
func (r *RTree) Size() int {
	return r.index.Len()
}

// boxDistance is the distance in meters from p to the closest point of the lon/lat box.
func boxDistance(p GeoPoint, min, max [2]float64) float64 {
	lon := math.Max(min[0], math.Min(p.Lon, max[0]))
	lat := math.Max(min[1], math.Min(p.Lat, max[1]))
	return GreatCircleDistance(p, NewPoint(lat, lon))
}
