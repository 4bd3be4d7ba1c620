// Package cluster derives snap targets from where objects already are.
//
// Responsibilities: k-means and DBSCAN clustering of anchor positions, and
// turning cluster centers into grids that can be merged with the
// subdivision grid.
// Key types: KMeansParams, DBSCANParams, SpatialIndex, Cluster.
//
// Dependency rule: cluster may depend on layout and grid. The snapping core
// only ever sees the resulting grid, never the solver.
package cluster
