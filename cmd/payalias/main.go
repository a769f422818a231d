// Command payalias resolves and verifies payment aliases from the terminal
package main

func main() {
	Execute()
}
