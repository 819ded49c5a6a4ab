package main

import "github.com/AlexeyNikonorov/digit-recognition/cmd"

func main() {
	cmd.Execute()
}
