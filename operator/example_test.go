package operator_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/operator"
)

// ExamplePath multiplies the path Laplacian by the all-ones vector, which
// spans its null space.
func ExamplePath() {
	l, _ := operator.Path(4)
	x, _ := block.FromColumns([]float64{1, 1, 1, 1})
	y, _ := block.New(4, 1)
	_ = l.Apply(context.Background(), y, x)
	fmt.Println(y.Col(0))
	// Output:
	// [0 0 0 0]
}
