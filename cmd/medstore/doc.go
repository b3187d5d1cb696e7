// Command medstore is the medical store backend and its operator CLI.
//
//	medstore serve             # start HTTP (and gRPC when GRPC_PORT is set)
//	medstore migrate           # apply pending SQL migrations / ensure mongo indexes
//	medstore migrate:rollback
//	medstore migrate:status
//	medstore seed              # default admin + staff accounts
//	medstore user:create --username alice --password secret1 --role admin
//	medstore stock:check       # one-off low stock / expiry scan
//	medstore route:list
package main
