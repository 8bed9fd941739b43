// Command mudra mutes and unmutes the microphone from hand gestures.
package main

func main() {
	Execute()
}
