/*
Package status tracks what happens to bundle files and reports progress.

	+-------------+        +-------------+
	|  transfer   | -----> |  Reporter   |
	|  (videos)   |        | bar / log   |
	+-------------+        +------+------+
	                              |
	                       +------+------+
	                       |  Formatter  |
	                       +-------------+

🎯 Purpose:
- Name the outcome of every file touched by a command (FileStatus)
- Report progress of long transfers, as a pterm bar on a terminal or as
  zerolog lines otherwise
- Render status and progress messages consistently

🔍 Example:

	rep := status.NewReporter(status.ProgressAuto, os.Stderr)
	rep.StartOperation(ctx, "Copy videos", len(videos))
	rep.UpdateProgress(ctx, 1)
	rep.FinishOperation(ctx)
*/
package status
