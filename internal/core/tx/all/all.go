// Package all imports every built-in program so that each registers itself
// with tx.DefaultRegistry. Import it for side effects:
//
//	import _ "github.com/LeJamon/goEscrowd/internal/core/tx/all"
package all

import (
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/associated"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/escrow"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/staking"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/system"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/token"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/vault"
)
