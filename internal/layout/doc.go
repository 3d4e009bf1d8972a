// Package layout positions mind map nodes with an iterative force
// simulation.
//
// Each step applies four forces to the live node records of a graph.Store:
// a spring along every link, pairwise many-body repulsion, collision
// between node circles and a centering translation. Velocities live only
// in the simulator. Alpha cools every step until it drops below AlphaMin,
// at which point the simulator goes idle and reports that the layout has
// settled. Pinned nodes are held at their pin.
package layout
