// Command blendctl inspects and re-serializes .blend files.
package main

func main() {
	execute()
}
