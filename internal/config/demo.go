package config

// demoRows is a 32x16 level of 24-unit tiles: a floor, a raised ledge, two
// one-way platforms and a wall on the right.
var demoRows = []string{
	"................................",
	"................................",
	"................................",
	"...............................#",
	"...............................#",
	"..........=====................#",
	"...............................#",
	"...............................#",
	"....................######.....#",
	"...............................#",
	"......=====....................#",
	"...............................#",
	"...............................#",
	"###.............................",
	"################################",
	"################################",
}
