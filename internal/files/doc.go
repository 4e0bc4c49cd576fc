// Package files holds the small file-system helpers used around a run:
// checking that an input path is a readable regular file, and creating
// output files and directories relative to the configured base directory.
//
// Example usage:
//
//	if err := files.CheckReadable(path); err != nil {
//	    return err
//	}
//
//	manager := files.NewManager(paths)
//	f, err := manager.Create("reports/output.txt")
package files
