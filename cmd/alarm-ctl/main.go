package main

import "github.com/oshokin/alarmify/cmd/alarm-ctl/cmd"

func main() {
	cmd.Execute()
}
