// Command admin manages the admin accounts that can sign in to the API.
package main

func main() {
	Execute()
}
