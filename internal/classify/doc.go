// Package classify sorts the controller's directories into entity
// categories during startup.
//
// The node classifier assigns each device node to at most one of the
// eight categories (switch, light, sensor, binary_sensor, lock, fan,
// cover, climate) by running an ordered cascade of detection strategies
// against the node's metadata. Each strategy inspects a single signal:
//
//  1. Firmware node definition id (5.0+, the strongest signal)
//  2. Insteon device type prefix
//  3. Z-Wave device category prefix
//  4. Numeric unit-of-measure code
//  5. Human-readable state token set
//
// The first strategy that matches wins, and within a strategy the
// categories are tested in a fixed priority order, so a node lands in
// exactly one bucket. Nodes matched by no strategy are dropped without
// an entity; only a debug log records them.
//
// Before the cascade runs, three checks short-circuit it: nodes whose
// folder path or name contains the ignore marker are dropped entirely,
// scenes go straight to the switch bucket, and nodes carrying the
// sensor marker are forced down a sensor/binary-sensor decision that
// never produces any other category.
//
// Besides device nodes the package classifies program folders (the
// HA.<category> convention under the root programs folder), declared
// controller variables, and the weather module's measurement pairs.
//
// Classification runs once, synchronously, during startup. The Result
// it fills is read-only afterwards and safe to share without locking.
package classify
