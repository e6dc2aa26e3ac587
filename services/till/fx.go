package till

import (
	"go.uber.org/fx"
)

var Module = fx.Module("till.service",
	fx.Provide(NewService),
	fx.Invoke(migrate, RegisterRoutes),
)

// Listener wires the settlement consumer onto the task mux. Separate from
// Module so tooling can run the HTTP surface without a queue attached.
var Listener = fx.Module("till.listener",
	fx.Invoke(registerListener),
)
