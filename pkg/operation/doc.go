/*
Package operation turns kcdutil commands into validated plans and runs them
with rollback.

	+-----------+      +-----------+      +-----------+
	|  Planner  | ---> |   Plan    | ---> |  Runner   |
	| (resolve) |      | (steps +  |      | (journal) |
	+-----------+      |  graph)   |      +-----+-----+
	                   +-----------+            |
	                                   +--------+--------+
	                                   |                 |
	                             +-----+-----+     +-----+-----+
	                             |  transfer |     |  bundle   |
	                             |  (files)  |     | (fields)  |
	                             +-----------+     +-----------+

🎯 Purpose:
- Resolves kcd, raf, hdr, video and clone arguments into ordered steps
- Checks the planned association graph before anything is written
- Executes steps and unwinds them when one fails

🔄 Flow:
1. Planner loads the records involved and pre-encodes every field edit
2. Plan.Validate checks destinations and the planned graph
3. Runner executes steps, recording an undo action per step in a Journal
4. On failure the journal is unwound newest first; on success finalizers
   drop backups and delete move sources

Steps are ordered so data files exist before the header that references them.
A rewrite step never edits a live file: it copies the source to a hidden
".<name>.<uuid>.kcdutil" file next to the destination, patches the copy and
renames it into place.

⚠️ Limitations:
- Invocations are not coordinated; two runs against the same bundle may race
- A killed process can leave ".kcdutil" staging files behind

🔍 Example:

	engine := transfer.New(transfer.WithOverwrite(false))
	plan, err := operation.NewPlanner(engine, false).Clone(ctx, "data/A/A.hdr", "B", transfer.ModeCopy)
	if err != nil {
		return err
	}
	runner, err := operation.NewRunner(operation.Options{Engine: engine})
	if err != nil {
		return err
	}
	return runner.Run(ctx, plan)
*/
package operation
