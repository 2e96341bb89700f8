/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package identity_test

import (
	"fmt"

	"github.com/suparena/modelstore/identity"
)

func ExampleDefaultFlattener_Flatten() {
	fmt.Println(identity.NewFlattener().Flatten(identity.Columns("product_id", 4, "category_id", 1)))
	// Output: 4_1
}
