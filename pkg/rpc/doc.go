/*
Package rpc bridges generic NETCONF operations and actions to a flat key/value backend.

A call goes through four steps:

  - Flatten turns the explicit input nodes of the request into records.
  - Invoker sends them through the session's backend handle.
  - Assemble rebuilds a schema-valid reply tree from the output records,
    propagating default flags as nodes are inserted.
  - Coordinator sequences the above, switches the session to the running
    datastore and maps every failure to an rpc-error.

Replies are one of an acknowledgement, a data tree or an rpc-error, never a
tree together with an error.
*/
package rpc
