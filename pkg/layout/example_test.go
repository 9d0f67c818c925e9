package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/layout"
)

func Example() {
	g := circuit.New()
	v1, _ := g.InsertDevice(circuit.VoltageSource, "V1", "n1", "gnd", 1)
	g.InsertDevice(circuit.Resistor, "R1", "n1", "n2", 1e3)
	g.InsertDevice(circuit.Resistor, "R2", "n2", "gnd", 1e3)

	res, err := layout.New(g, layout.Options{}).Run(context.Background(), []int{v1.ID})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, d := range res.Devices {
		fmt.Printf("%s level=%d col=%d %s\n", d.Name, d.Level, d.GeomCol, d.Orientation)
	}
	for _, ch := range res.Channels {
		fmt.Printf("channel %d: %d track(s) at col %d\n", ch.ID, ch.Tracks, ch.GeomCol)
	}
	// Output:
	// V1 level=0 col=0 vertical
	// R1 level=1 col=2 horizontal
	// R2 level=2 col=4 vertical
	// channel 0: 1 track(s) at col 1
	// channel 1: 1 track(s) at col 3
}
