package osm

import (
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"github.com/qedus/osmpbf"
	"go.uber.org/zap"

	"kuanb/gosm-matcher/geom"
)

var highwayTypesList = []string{
	"motorway",
	"motorway_link",
	"trunk",
	"trunk_link",
	"primary",
	"primary_link",
	"secondary",
	"secondary_link",
	"tertiary",
	"tertiary_link",
	"unclassified",
	"residential",
	"service",
	"living_street",
}

var whitelistedHighways = func() map[string]struct{} {
	m := make(map[string]struct{}, len(highwayTypesList))
	for _, hw := range highwayTypesList {
		m[hw] = struct{}{}
	}
	return m
}()

// OsmNode is a decoded OSM node.
type OsmNode struct {
	ID  OsmNodeId
	Lat float64
	Lon float64
}

// OsmWay is a decoded OSM way before it is split into edges.
type OsmWay struct {
	ID      OsmWayId
	Nodes   []OsmNodeId
	Highway string
	Tags    map[string]string
}

// LoadPBF reads an OSM PBF extract and builds the drivable road graph.
func LoadPBF(filePath string, log *zap.Logger) (*RoadGraph, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "open pbf")
	}
	defer f.Close()

	return DecodePBF(f, log)
}

// DecodePBF builds the road graph from a PBF stream.
func DecodePBF(r io.Reader, log *zap.Logger) (*RoadGraph, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := osmpbf.NewDecoder(r)

	// use more memory from the start, it is faster
	d.SetBufferSize(osmpbf.MaxBlobSize)

	// start decoding with several goroutines, it is faster
	if err := d.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, errors.Wrap(err, "start pbf decoder")
	}

	var nc, wc, rc uint64
	nodes := make(map[OsmNodeId]*OsmNode)
	ways := make(map[OsmWayId]*OsmWay)

	for {
		v, err := d.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "decode pbf")
		}
		switch v := v.(type) {
		case *osmpbf.Node:
			nodes[OsmNodeId(v.ID)] = &OsmNode{
				ID:  OsmNodeId(v.ID),
				Lat: v.Lat,
				Lon: v.Lon,
			}
			nc++
		case *osmpbf.Way:
			wc++
			highway := v.Tags["highway"]
			if _, ok := whitelistedHighways[highway]; !ok {
				continue
			}
			nodeIDs := make([]OsmNodeId, len(v.NodeIDs))
			for i, id := range v.NodeIDs {
				nodeIDs[i] = OsmNodeId(id)
			}
			ways[OsmWayId(v.ID)] = &OsmWay{
				ID:      OsmWayId(v.ID),
				Highway: highway,
				Nodes:   nodeIDs,
				Tags:    v.Tags,
			}
		case *osmpbf.Relation:
			// relations carry no drivable geometry
			rc++
		default:
			return nil, errors.Errorf("unknown pbf entity %T", v)
		}
	}
	log.Info("decoded pbf",
		zap.Uint64("nodes", nc),
		zap.Uint64("ways", wc),
		zap.Uint64("relations", rc),
		zap.Int("highways", len(ways)))

	return BuildGraph(nodes, ways, log)
}

// BuildGraph splits ways at intersections and way ends, producing one edge
// per piece of road between two vertices.
func BuildGraph(nodes map[OsmNodeId]*OsmNode, ways map[OsmWayId]*OsmWay, log *zap.Logger) (*RoadGraph, error) {
	if log == nil {
		log = zap.NewNop()
	}

	wayIDs := make([]OsmWayId, 0, len(ways))
	for id := range ways {
		wayIDs = append(wayIDs, id)
	}
	sort.Slice(wayIDs, func(i, j int) bool { return wayIDs[i] < wayIDs[j] })

	// Drop references to nodes missing from the extract.
	resolved := make(map[OsmWayId][]OsmNodeId, len(ways))
	var missing int
	for _, id := range wayIDs {
		way := ways[id]
		refs := make([]OsmNodeId, 0, len(way.Nodes))
		for _, nid := range way.Nodes {
			if _, ok := nodes[nid]; ok {
				refs = append(refs, nid)
			} else {
				missing++
			}
		}
		if len(refs) >= 2 {
			resolved[id] = refs
		}
	}
	if missing > 0 {
		log.Warn("ways reference nodes missing from the extract", zap.Int("refs", missing))
	}

	// Vertices are nodes shared by several ways, or at the end of a way.
	nodeUse := make(map[OsmNodeId]int)
	for _, refs := range resolved {
		for _, nid := range refs {
			nodeUse[nid]++
		}
	}
	isVertex := func(refs []OsmNodeId, i int) bool {
		return i == 0 || i == len(refs)-1 || nodeUse[refs[i]] > 1
	}

	b := NewGraphBuilder()
	for _, id := range wayIDs {
		refs, ok := resolved[id]
		if !ok {
			continue
		}
		way := ways[id]
		oneway, reversed := onewayOf(way)
		if reversed {
			refs = reverseNodes(refs)
		}

		segStart := 0
		for i := 1; i < len(refs); i++ {
			if !isVertex(refs, i) {
				continue
			}
			piece := refs[segStart : i+1]
			points := make([]geom.GeoPoint, len(piece))
			for j, nid := range piece {
				n := nodes[nid]
				points[j] = geom.NewPoint(n.Lat, n.Lon)
			}
			from, to := VertexID(piece[0]), VertexID(piece[len(piece)-1])
			if err := b.AddVertex(from, points[0]); err != nil {
				return nil, err
			}
			if err := b.AddVertex(to, points[len(points)-1]); err != nil {
				return nil, err
			}
			if _, err := b.AddEdge(EdgeSpec{
				WayID:    way.ID,
				From:     from,
				To:       to,
				Highway:  way.Highway,
				Oneway:   oneway,
				Geometry: points,
			}); err != nil {
				return nil, errors.Wrapf(err, "way %d", way.ID)
			}
			segStart = i
		}
	}

	g := b.Build()
	log.Info("built road graph",
		zap.Int("vertices", g.NumVertices()),
		zap.Int("edges", g.NumEdges()))
	return g, nil
}

// onewayOf reports whether the way is one-directional and whether its
// direction of travel runs against its node order.
func onewayOf(way *OsmWay) (oneway, reversed bool) {
	switch way.Tags["oneway"] {
	case "yes", "1", "true":
		return true, false
	case "-1", "reverse":
		return true, true
	case "no", "0", "false":
		return false, false
	}
	if way.Tags["junction"] == "roundabout" {
		return true, false
	}
	return way.Highway == "motorway", false
}

func reverseNodes(refs []OsmNodeId) []OsmNodeId {
	out := make([]OsmNodeId, len(refs))
	for i, nid := range refs {
		out[len(refs)-1-i] = nid
	}
	return out
}
