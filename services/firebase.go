package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	messagingClient *messaging.Client
	authClient      *auth.Client
	firestoreClient *firestore.Client
	storageBucket   *gcs.BucketHandle
	once            sync.Once
	initError       error
)

var errNotInitialized = errors.New("firebase not initialized")

// InitFirebase builds the Firebase app and its clients once per process.
// An empty bucket skips the Storage client.
func InitFirebase(credentialsPath, bucket string) error {
	once.Do(func() {
		ctx := context.Background()

		log.Printf("[Firebase] Initializing Firebase with credentials: %s", credentialsPath)

		var conf *firebase.Config
		if bucket != "" {
			conf = &firebase.Config{StorageBucket: bucket}
		}

		opt := option.WithCredentialsFile(credentialsPath)
		app, err := firebase.NewApp(ctx, conf, opt)
		if err != nil {
			initFailed("Firebase", "init Firebase app", err)
			return
		}

		messagingClient, err = app.Messaging(ctx)
		if err != nil {
			initFailed("FCM", "get messaging client", err)
			return
		}

		authClient, err = app.Auth(ctx)
		if err != nil {
			initFailed("Firebase", "get auth client", err)
			return
		}

		firestoreClient, err = app.Firestore(ctx)
		if err != nil {
			initFailed("Firebase", "get firestore client", err)
			return
		}

		if bucket != "" {
			storageClient, err := app.Storage(ctx)
			if err != nil {
				initFailed("Firebase", "get storage client", err)
				return
			}
			storageBucket, err = storageClient.DefaultBucket()
			if err != nil {
				initFailed("Firebase", "open bucket "+bucket, err)
				return
			}
		}

		log.Println("[Firebase] Clients initialized successfully")
	})

	return initError
}

func GetMessagingClient() (*messaging.Client, error) {
	if messagingClient == nil {
		log.Printf("[FCM][ERROR] Messaging client is nil (initError=%v)", initError)
		return nil, initErr()
	}
	return messagingClient, nil
}

func GetAuthClient() (*auth.Client, error) {
	if authClient == nil {
		return nil, initErr()
	}
	return authClient, nil
}

func GetFirestoreClient() (*firestore.Client, error) {
	if firestoreClient == nil {
		return nil, initErr()
	}
	return firestoreClient, nil
}

func GetStorageBucket() (*gcs.BucketHandle, error) {
	if storageBucket == nil {
		return nil, initErr()
	}
	return storageBucket, nil
}

// CloseFirebase releases the Firestore connection.
func CloseFirebase() {
	if firestoreClient != nil {
		if err := firestoreClient.Close(); err != nil {
			log.Printf("[Firebase] Closing firestore client: %v", err)
		}
	}
}

// initFailed records err and logs it under the subsystem that raised it.
func initFailed(tag, step string, err error) {
	initError = err
	log.Printf("[%s][ERROR] Failed to %s: %v", tag, step, err)
}

func initErr() error {
	if initError != nil {
		return initError
	}
	return errNotInitialized
}
