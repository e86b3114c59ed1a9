package main

import "go_qa_assistant/cmd"

func main() {
	cmd.Execute()
}
