package riak_engine

import (
	"github.com/basho/riak-go-client"
	"github.com/pkg/errors"
)

// Key/value access to the documents of one bucket
type bucket interface {
	ping() error
	put(key string, value []byte) error
	// returns false when the key does not exist (or was deleted after being listed)
	get(key string) ([]byte, bool, error)
	keys() ([]string, error)
	remove(key string) error
}

type riakBucket struct {
	client     *riak.Client
	bucketType string
	bucket     string
}

func (b *riakBucket) pingCommand() (riak.Command, error) {
	return (&riak.PingCommandBuilder{}).Build()
}

func (b *riakBucket) storeCommand(key string, value []byte) (riak.Command, error) {
	return riak.NewStoreValueCommandBuilder().
		WithBucketType(b.bucketType).
		WithBucket(b.bucket).
		WithKey(key).
		WithContent(&riak.Object{
			ContentType: "application/json",
			Value:       value,
		}).
		Build()
}

func (b *riakBucket) fetchCommand(key string) (riak.Command, error) {
	return riak.NewFetchValueCommandBuilder().
		WithBucketType(b.bucketType).
		WithBucket(b.bucket).
		WithKey(key).
		Build()
}

func (b *riakBucket) listKeysCommand() (riak.Command, error) {
	return riak.NewListKeysCommandBuilder().
		WithBucketType(b.bucketType).
		WithBucket(b.bucket).
		Build()
}

func (b *riakBucket) deleteCommand(key string) (riak.Command, error) {
	return riak.NewDeleteValueCommandBuilder().
		WithBucketType(b.bucketType).
		WithBucket(b.bucket).
		WithKey(key).
		Build()
}

func (b *riakBucket) ping() error {
	cmd, err := b.pingCommand()
	if err != nil {
		return err
	}
	return errors.Wrap(b.client.Execute(cmd), "ping riak")
}

func (b *riakBucket) put(key string, value []byte) error {
	cmd, err := b.storeCommand(key, value)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.client.Execute(cmd), "store %s", key)
}

func (b *riakBucket) get(key string) ([]byte, bool, error) {
	cmd, err := b.fetchCommand(key)
	if err != nil {
		return nil, false, err
	}
	if err := b.client.Execute(cmd); err != nil {
		return nil, false, errors.Wrapf(err, "fetch %s", key)
	}

	resp := cmd.(*riak.FetchValueCommand).Response
	if resp == nil || resp.IsNotFound || len(resp.Values) == 0 {
		return nil, false, nil
	}
	// with allow_mult disabled there is a single sibling
	return resp.Values[0].Value, true, nil
}

func (b *riakBucket) keys() ([]string, error) {
	cmd, err := b.listKeysCommand()
	if err != nil {
		return nil, err
	}
	if err := b.client.Execute(cmd); err != nil {
		return nil, errors.Wrap(err, "list keys")
	}

	resp := cmd.(*riak.ListKeysCommand).Response
	if resp == nil {
		return []string{}, nil
	}
	return resp.Keys, nil
}

func (b *riakBucket) remove(key string) error {
	cmd, err := b.deleteCommand(key)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.client.Execute(cmd), "delete %s", key)
}
