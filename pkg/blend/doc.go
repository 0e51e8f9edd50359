/*
Package blend reads and writes .blend files, re-laying out every data block
from the struct layout the file was saved with into the layout the running
application expects.

# Quick Start

Load any file using its own schema:

	f, err := blend.Open("scene.blend", nil)
	if err != nil {
	    log.Fatal(err)
	}
	for _, b := range f.Blocks() {
	    fmt.Println(b.Code, f.StructName(b), b.Count)
	}

Load against the schema an application was built with:

	app := blend.NewLists(mySchemaBlob)
	f := blend.New(app, &blend.Options{Logger: logrus.StandardLogger()})
	if err := f.Parse("scene.blend"); err != nil {
	    log.Fatalf("%s: %v", types.StatusOf(err), err)
	}
	for _, ob := range app.Blocks(blend.MakeCode("OB")) {
	    name, _ := f.String(ob, 0, "id.name")
	    fmt.Println(name)
	}

Write the loaded data back in native byte order and pointer width:

	err := f.Reflect("copy.blend")

# Error Handling

Every failure is a *types.Error carrying one of a closed set of statuses
(invalid header, invalid read, bad alloc, ...). Data that could not be
migrated (fields missing from the file, unresolved pointers, dropped chunks)
is zero filled and reported through Diagnostics instead.
*/
package blend
